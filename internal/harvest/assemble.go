package harvest

import "github.com/fortuna/scoretree/internal/hupu"

// Step is the state of one player record in flight: either Complete or
// NeedsComments.
type Step interface {
	step()
}

// Complete is a record that needs no further requests.
type Complete struct {
	Record hupu.FinalRecord
}

// NeedsComments is a record waiting on its hottest-comments lookup.
type NeedsComments struct {
	BizID   int64
	Partial hupu.PartialRecord
}

func (Complete) step() {}
func (NeedsComments) step() {}

// Assemble decides the next step for a partial record. Without a comment key
// the record is complete with three empty comments.
func Assemble(partial hupu.PartialRecord) Step {
	if partial.CommentBizID == nil {
		return Complete{Record: partial.Complete([hupu.CommentSlots]string{})}
	}
	return NeedsComments{BizID: *partial.CommentBizID, Partial: partial}
}

// Resolve completes a NeedsComments step with fetched comments.
func (n NeedsComments) Resolve(comments [hupu.CommentSlots]string) Complete {
	return Complete{Record: n.Partial.Complete(comments)}
}
