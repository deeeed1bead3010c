// Package reservation implements the reservation lifecycle: creating
// requests, admin decisions with conflict warnings, cancellation,
// deletion and the read paths that apply ownership rules.
package reservation

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/tle-lab/reservations/internal/authz"
	"github.com/tle-lab/reservations/internal/conflict"
	"github.com/tle-lab/reservations/internal/model"
	"github.com/tle-lab/reservations/internal/notice"
	"github.com/tle-lab/reservations/internal/queue"
	"github.com/tle-lab/reservations/internal/repository"
)

// ErrIllegalTransition is returned when the requested status change is not
// allowed from the reservation's current status.
var ErrIllegalTransition = errors.New("illegal status transition")

// Deps are the collaborators of a Service.  Notices, Publisher and Now
// default to an in-memory store, a no-op publisher and time.Now.
type Deps struct {
	Repo      repository.Repository
	Notices   notice.Store
	Publisher queue.Publisher
	Policy    conflict.Policy
	Now       func() time.Time
}

// Service runs reservation operations on behalf of a principal.  The
// principal is always passed explicitly; the service never reads it from
// the context.
type Service struct {
	repo    repository.Repository
	notices notice.Store
	pub     queue.Publisher
	policy  conflict.Policy
	now     func() time.Time
}

// NewService wires a Service.
func NewService(d Deps) *Service {
	s := &Service{repo: d.Repo, notices: d.Notices, pub: d.Publisher, policy: d.Policy, now: d.Now}
	if s.notices == nil {
		s.notices = notice.NewMemoryStore()
	}
	if s.pub == nil {
		s.pub = queue.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Decision is the outcome of an admin decision.  Conflicts is non-empty
// only for approvals that overlap other approved reservations; the
// approval is stored either way.
type Decision struct {
	Reservation *model.Reservation  `json:"reservation"`
	Conflicts   []conflict.Conflict `json:"conflicts"`
}

// Decide moves a pending reservation to approved or declined.
func (s *Service) Decide(ctx context.Context, p authz.Principal, id uint64, decision string) (*Decision, error) {
	if !authz.CanAdminister(p) {
		return nil, repository.ErrForbidden
	}
	to, ok := model.ParseStatus(decision)
	if !ok || (to != model.StatusApproved && to != model.StatusDeclined) {
		return nil, model.Invalid("decision", "must be approved or declined")
	}

	var (
		out  Decision
		from model.Status
	)
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		from = r.Status
		if err := transition(ctx, tx, r, to); err != nil {
			return err
		}
		out.Reservation = r
		if to != model.StatusApproved {
			return nil
		}
		others, err := tx.ListApprovedAt(ctx, r.Venue, r.Date, r.ID)
		if err != nil {
			return err
		}
		out.Conflicts = conflict.Detect(*r, others, s.policy)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(out.Conflicts) > 0 {
		msg := conflict.Summary(*out.Reservation, out.Conflicts)
		if err := s.notices.Push(ctx, p.UserID, msg); err != nil {
			log.Printf("reservation: queue notice for admin %d: %v", p.UserID, err)
		}
	} else {
		out.Conflicts = []conflict.Conflict{}
	}

	evType := queue.EventDeclined
	if to == model.StatusApproved {
		evType = queue.EventApproved
	}
	ev := queue.NewEvent(evType, *out.Reservation, p.UserID, s.now())
	ev.FromStatus = from
	for _, c := range out.Conflicts {
		ev.ConflictIDs = append(ev.ConflictIDs, c.ReservationID)
	}
	s.publish(ctx, ev)
	return &out, nil
}

// Cancel moves a pending or approved reservation to cancelled.  Only the
// owner recorded in CreatedBy or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, p authz.Principal, id uint64) (*model.Reservation, error) {
	var (
		out  *model.Reservation
		from model.Status
	)
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if !authz.CanMutate(p, *r) {
			return repository.ErrForbidden
		}
		from = r.Status
		if err := transition(ctx, tx, r, model.StatusCancelled); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	ev := queue.NewEvent(queue.EventCancelled, *out, p.UserID, s.now())
	ev.FromStatus = from
	s.publish(ctx, ev)
	return out, nil
}

// transition applies from r.Status to `to` with a compare-and-set so a
// concurrent change is reported instead of overwritten.
func transition(ctx context.Context, tx repository.Repository, r *model.Reservation, to model.Status) error {
	if !model.CanTransition(r.Status, to) {
		return ErrIllegalTransition
	}
	if err := tx.UpdateReservationStatus(ctx, r.ID, r.Status, to); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return ErrIllegalTransition
		}
		return err
	}
	r.Status = to
	return nil
}

// Delete removes a reservation and its items.  Admin only.
func (s *Service) Delete(ctx context.Context, p authz.Principal, id uint64) error {
	if !authz.CanAdminister(p) {
		return repository.ErrForbidden
	}
	var gone *model.Reservation
	err := s.repo.WithTransaction(ctx, func(tx repository.Repository) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		gone = r
		return tx.DeleteReservation(ctx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, queue.NewEvent(queue.EventDeleted, *gone, p.UserID, s.now()))
	return nil
}

// Get returns one reservation with its items and resolved owner.
func (s *Service) Get(ctx context.Context, p authz.Principal, id uint64) (*model.Reservation, error) {
	r, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.CreatedBy == nil {
		users, err := s.repo.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		r.OwnerID = authz.ResolveOwner(*r, users)
	} else {
		r.OwnerID = authz.ResolveOwner(*r, nil)
	}
	if !authz.CanView(p, *r) {
		return nil, repository.ErrForbidden
	}
	return r, nil
}

// PendingNotices returns and clears the conflict notices queued for the
// calling admin.
func (s *Service) PendingNotices(ctx context.Context, p authz.Principal) ([]string, error) {
	if !authz.CanAdminister(p) {
		return nil, repository.ErrForbidden
	}
	msgs, err := s.notices.Pop(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []string{}
	}
	return msgs, nil
}

func (s *Service) publish(ctx context.Context, ev queue.ReservationEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.pub.Publish(ctx, ev); err != nil {
		log.Printf("reservation: publish %s for #%d: %v", ev.Type, ev.ReservationID, err)
	}
}

// resolveOwners fills OwnerID on every reservation.  Users are loaded only
// when a legacy row needs the name match.
func (s *Service) resolveOwners(ctx context.Context, rs []model.Reservation) error {
	var users []model.User
	for i := range rs {
		if rs[i].CreatedBy == nil && users == nil {
			var err error
			if users, err = s.repo.ListUsers(ctx); err != nil {
				return err
			}
		}
		rs[i].OwnerID = authz.ResolveOwner(rs[i], users)
	}
	return nil
}

func byNewest(rs []model.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID > rs[j].ID
	})
}

func clean(s string) string { return strings.TrimSpace(s) }
