package renderer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"
)

var (
	// ErrTileGrid is returned when the tile count cannot evenly divide the image
	ErrTileGrid = errors.New("tile count does not divide image dimensions")
	// ErrInvalidTileCount is returned for a non-positive tile count
	ErrInvalidTileCount = errors.New("invalid tile count")
	// ErrTileLayout is returned when tiles leave gaps or overlap in the final image
	ErrTileLayout = errors.New("inconsistent tile layout")
)

// Tile is a rectangular region of the image rendered by a single task.
// Until assembly it is owned exclusively by the task rendering it.
type Tile struct {
	ID        int             // Unique tile identifier (row-major in the grid)
	Bounds    image.Rectangle // Region of the final image covered by this tile
	Pixels    *image.RGBA     // Tile-local pixel buffer, origin at (0,0)
	Progress  int             // Pixels finished so far
	Cancelled bool            // Set when the tile stopped early on cancellation
	Random    *rand.Rand      // Tile-specific random generator for deterministic results
}

// NewTile creates a tile covering bounds with its own random generator
func NewTile(id int, bounds image.Rectangle, seed int64) *Tile {
	return &Tile{
		ID:     id,
		Bounds: bounds,
		Pixels: image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy())),
		Random: rand.New(rand.NewSource(seed + int64(id))),
	}
}

// PixelCount returns the number of pixels the tile covers
func (t *Tile) PixelCount() int {
	return t.Bounds.Dx() * t.Bounds.Dy()
}

// TileGrid chooses a near-square grid of tilesX*tilesY == count tiles
// for a width x height image. Each tile must have integral dimensions.
func TileGrid(width, height, count int) (tilesX, tilesY int, err error) {
	if count <= 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidTileCount, count)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: image %dx%d", ErrTileGrid, width, height)
	}

	aspect := float64(width) / float64(height)
	yIdeal := max(1, math.Round(math.Sqrt(float64(count)/aspect)))

	bestY := 0
	bestError := math.Inf(1)
	for y := 1; y <= count; y++ {
		if count%y != 0 {
			continue
		}
		// Ratio error is symmetric for under- and over-shoot
		ratio := yIdeal / float64(y)
		if ratio < 1 {
			ratio = 1 / ratio
		}
		if ratio < bestError {
			bestError = ratio
			bestY = y
		}
	}

	tilesY = bestY
	tilesX = count / tilesY
	if width%tilesX != 0 || height%tilesY != 0 {
		return 0, 0, fmt.Errorf("%w: %d tiles as %dx%d grid for %dx%d image",
			ErrTileGrid, count, tilesX, tilesY, width, height)
	}
	return tilesX, tilesY, nil
}

// NewTiles partitions the image described by config into tiles, row-major
func NewTiles(config RenderConfig) ([]*Tile, error) {
	tilesX, tilesY, err := TileGrid(config.Width, config.Height, config.TileCount)
	if err != nil {
		return nil, err
	}

	tileWidth := config.Width / tilesX
	tileHeight := config.Height / tilesY
	tiles := make([]*Tile, 0, tilesX*tilesY)

	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0 := tx * tileWidth
			y0 := ty * tileHeight
			bounds := image.Rect(x0, y0, x0+tileWidth, y0+tileHeight)
			tiles = append(tiles, NewTile(len(tiles), bounds, config.Seed))
		}
	}

	return tiles, nil
}

// Assemble copies every tile buffer into a width x height image at the
// tile's offset. Tiles must cover the image exactly once.
func Assemble(width, height int, tiles []*Tile) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	frame := img.Bounds()
	covered := make([]bool, width*height)
	total := 0

	for _, tile := range tiles {
		if !tile.Bounds.In(frame) || tile.Bounds.Empty() {
			return nil, fmt.Errorf("%w: tile %d bounds %v outside %v", ErrTileLayout, tile.ID, tile.Bounds, frame)
		}
		if tile.Pixels == nil || tile.Pixels.Bounds().Size() != tile.Bounds.Size() {
			return nil, fmt.Errorf("%w: tile %d buffer does not match bounds %v", ErrTileLayout, tile.ID, tile.Bounds)
		}

		for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
			for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
				if covered[y*width+x] {
					return nil, fmt.Errorf("%w: tile %d overlaps pixel (%d, %d)", ErrTileLayout, tile.ID, x, y)
				}
				covered[y*width+x] = true
			}

			// Copy one row of the tile buffer into the frame
			src := tile.Pixels.PixOffset(0, y-tile.Bounds.Min.Y)
			dst := img.PixOffset(tile.Bounds.Min.X, y)
			n := tile.Bounds.Dx() * 4
			copy(img.Pix[dst:dst+n], tile.Pixels.Pix[src:src+n])
		}
		total += tile.PixelCount()
	}

	if total != width*height {
		return nil, fmt.Errorf("%w: tiles cover %d of %d pixels", ErrTileLayout, total, width*height)
	}
	return img, nil
}
