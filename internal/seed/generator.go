package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// Window is how far back generated complaints reach.
const Window = 90 * 24 * time.Hour

var (
	blocks       = []string{"A1", "B2", "C1", "D1"}
	subBlocks    = []string{"A", "B"}
	statuses     = []domain.ComplaintStatus{domain.ComplaintStatusOpen, domain.ComplaintStatusInProgress, domain.ComplaintStatusResolved}
	messageTypes = []domain.MessageType{
		domain.MessageTypeGrievance,
		domain.MessageTypeAssistance,
		domain.MessageTypeEnquiry,
		domain.MessageTypeFeedback,
		domain.MessageTypePositiveFeedback,
	}
	phrases = map[domain.Category][]string{
		domain.CategoryCarpentry: {
			"door hinge is broken and the door does not close",
			"wardrobe shelf collapsed",
			"study table drawer is stuck",
		},
		domain.CategoryElectrical: {
			"ceiling fan is not working",
			"tube light keeps flickering at night",
			"power socket near the bed sparks",
		},
		domain.CategoryPlumbing: {
			"water tap leaking in the bathroom",
			"washroom drain is blocked",
			"no hot water in the shower",
		},
		domain.CategoryRagging: {
			"seniors forcing juniors to run errands late at night",
			"verbal harassment in the corridor",
		},
	}
)

// Options controls generation.
type Options struct {
	Count int
	Users int64
	End   time.Time
}

// Generate produces Count complaints spread over the Window before End.
func Generate(rng *rand.Rand, opts Options) []domain.Complaint {
	if opts.Users <= 0 {
		opts.Users = 30
	}
	categories := domain.Categories()
	start := opts.End.Add(-Window)

	records := make([]domain.Complaint, 0, opts.Count)
	for i := 1; i <= opts.Count; i++ {
		category := categories[rng.IntN(len(categories))]
		pool := phrases[category]
		created := start.Add(time.Duration(rng.Int64N(int64(Window)))).Truncate(time.Minute)
		status := statuses[rng.IntN(len(statuses))]

		c := domain.Complaint{
			ID:          int64(i),
			Category:    category,
			Status:      status,
			RaisedBy:    rng.Int64N(opts.Users) + 1,
			CreatedAt:   created.UTC(),
			Description: pool[rng.IntN(len(pool))],
			Block:       blocks[rng.IntN(len(blocks))],
			SubBlock:    subBlocks[rng.IntN(len(subBlocks))],
			RoomNo:      fmt.Sprintf("%d", 100+rng.IntN(400)),
			AssignedTo:  fmt.Sprintf("Tech%d", rng.IntN(4)+1),
			MessageType: messageTypes[rng.IntN(len(messageTypes))],
		}
		if status == domain.ComplaintStatusResolved {
			resolved := created.Add(time.Duration(1+rng.IntN(120)) * time.Hour)
			if resolved.After(opts.End) {
				resolved = opts.End
			}
			c.ResolvedAt = &resolved
		}
		records = append(records, c)
	}
	return records
}
