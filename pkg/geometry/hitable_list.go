package geometry

import (
	"errors"
	"fmt"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// ErrEmptyWorld is returned when a scene has nothing to render
var ErrEmptyWorld = errors.New("hitable list is empty")

// HitableList is a flat aggregate of scene objects.
// It must not be modified once rendering starts; workers share it without locking.
type HitableList struct {
	Objects []core.Hitable
	bounds  core.AABB
	bounded bool
}

// NewHitableList creates an aggregate over the given objects
func NewHitableList(objects ...core.Hitable) *HitableList {
	list := &HitableList{}
	list.Add(objects...)
	return list
}

// Add appends objects to the list and refreshes the cached aggregate bounds
func (l *HitableList) Add(objects ...core.Hitable) {
	l.Objects = append(l.Objects, objects...)
	bounds, ok := l.BoundingBox(0, 0)
	// NaN extents from a bad member must not reject rays before Validate reports it
	l.bounds, l.bounded = bounds, ok && bounds.IsValid()
}

// Len returns the number of objects in the list
func (l *HitableList) Len() int {
	return len(l.Objects)
}

// Validate checks every member that can report configuration errors
func (l *HitableList) Validate() error {
	if len(l.Objects) == 0 {
		return ErrEmptyWorld
	}
	for i, object := range l.Objects {
		if v, ok := object.(core.Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("object %d: %w", i, err)
			}
		}
	}
	return nil
}

// Hit returns the closest intersection among all objects
func (l *HitableList) Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	hit, _, isHit := l.HitObject(ray, tMin, tMax)
	return hit, isHit
}

// HitObject is Hit that also returns the member that produced the closest hit
func (l *HitableList) HitObject(ray core.Ray, tMin, tMax float64) (*core.HitRecord, core.Hitable, bool) {
	// Static worlds are rejected early; bounds at time 0 do not cover moving objects
	if l.bounded && ray.Time == 0 && !l.bounds.Hit(ray, tMin, tMax) {
		return nil, nil, false
	}

	var closestHit *core.HitRecord
	var closestObject core.Hitable
	closestSoFar := tMax

	for _, object := range l.Objects {
		if hit, isHit := object.Hit(ray, tMin, closestSoFar); isHit {
			closestSoFar = hit.T
			closestHit = hit
			closestObject = object
		}
	}

	return closestHit, closestObject, closestHit != nil
}

// BoundingBox returns the union of all member boxes.
// There is no box for an empty list or when any member has none.
func (l *HitableList) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	if len(l.Objects) == 0 {
		return core.AABB{}, false
	}

	var box core.AABB
	for i, object := range l.Objects {
		objectBox, ok := object.BoundingBox(t0, t1)
		if !ok {
			return core.AABB{}, false
		}
		if i == 0 {
			box = objectBox
		} else {
			box = box.Union(objectBox)
		}
	}
	return box, true
}
