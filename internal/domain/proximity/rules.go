package proximity

import "github.com/okian/slalom/internal/domain/model"

// Decision is the recovery chosen for a close obstacle: which way to turn and
// which sectors must clear before the turn ends.
type Decision struct {
	Rule      string
	Direction model.Direction
	Until     []model.Sector
}

// Rule is one entry of the close-obstacle priority list.
type Rule struct {
	Name   string
	When   func(d model.DirectionalDistances, th model.Thresholds) bool
	Decide func(d model.DirectionalDistances) (model.Direction, []model.Sector)
}

// DefaultRules returns the close-obstacle rules in priority order. The first rule
// whose When holds decides the recovery.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "front_and_right",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.Front < th.StopDistance() && d.Right < th.StopDistance()
			},
			Decide: func(model.DirectionalDistances) (model.Direction, []model.Sector) {
				return model.DirectionLeft, []model.Sector{model.SectorFront}
			},
		},
		{
			Name: "front_and_left",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.Front < th.FrontTriggerDistance() && d.Left < th.StopDistance()
			},
			Decide: func(model.DirectionalDistances) (model.Direction, []model.Sector) {
				return model.DirectionRight, []model.Sector{model.SectorFront}
			},
		},
		{
			Name: "front",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.Front < th.FrontTriggerDistance()
			},
			Decide: func(d model.DirectionalDistances) (model.Direction, []model.Sector) {
				return model.TurnAway(d.Right, d.Left), []model.Sector{model.SectorFront}
			},
		},
		{
			Name: "blind",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.FrontRight < th.StopDistance() || d.FrontLeft < th.StopDistance()
			},
			Decide: func(d model.DirectionalDistances) (model.Direction, []model.Sector) {
				dir := model.TurnAway(d.FrontRight, d.FrontLeft)
				if dir == model.DirectionLeft {
					return dir, []model.Sector{model.SectorFrontRight, model.SectorFront}
				}
				return dir, []model.Sector{model.SectorFrontLeft, model.SectorFront}
			},
		},
		{
			Name: "side",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.Right < th.StopDistance() || d.Left < th.StopDistance()
			},
			Decide: func(d model.DirectionalDistances) (model.Direction, []model.Sector) {
				dir := model.TurnAway(d.Right, d.Left)
				if dir == model.DirectionLeft {
					return dir, []model.Sector{model.SectorRight, model.SectorFront}
				}
				return dir, []model.Sector{model.SectorLeft, model.SectorFront}
			},
		},
	}
}
