package sim

import "github.com/okian/slalom/internal/domain/model"

// Course returns a looping bench script that walks the controller through
// every layer: open floor, a wall closing in from the front, a post in the
// right blind spot and a corridor pinching from the left.
func Course() []model.RawScan {
	open := OpenField()
	return []model.RawScan{
		open,
		open,
		Paint(open, 345, 375, 1.2),
		Paint(open, 345, 375, 0.6),
		Paint(open, 345, 375, 0.32), // far-field front
		Paint(open, 345, 375, 0.15), // inside the stop distance
		Paint(open, 345, 375, 0.22),
		open,
		Paint(open, 337, 345, 0.4), // right blind spot
		Paint(open, 337, 345, 0.18),
		open,
		Paint(open, 20, 60, 0.3), // wall on the left
		Paint(open, 20, 60, 0.5),
		open,
	}
}
