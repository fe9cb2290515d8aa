package store

import (
	"context"

	"taskhive/internal/mapper"
	"taskhive/internal/model"
)

// AddActivity prepends a feed entry, trims the feed to the activity limit and
// persists the entry in the background.
func (s *Store) AddActivity(action, label string) model.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addActivityLocked(action, label)
}

func (s *Store) addActivityLocked(action, label string) model.Activity {
	a := model.Activity{
		ID:        newTempID(),
		Action:    action,
		Project:   label,
		Time:      "Just now",
		Timestamp: s.now().UnixMilli(),
	}
	s.activities = prepend(s.activities, a)
	if len(s.activities) > s.activityLimit {
		s.activities = s.activities[:s.activityLimit]
	}

	// No sync state: nothing looks an activity up by id.
	rec := mapper.NewActivityRecord(a)
	s.coord.run("create activity", "", func(ctx context.Context) error {
		created, err := s.remote.Activities.Create(ctx, rec)
		if err != nil {
			return err
		}
		s.reconcileActivity(a.ID, created.ID)
		return nil
	})
	s.bus.publish(Change{Kind: ChangeActivity, Op: "create", ID: a.ID})
	return a
}

func (s *Store) reconcileActivity(tmp, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.activities {
		if s.activities[i].ID == tmp {
			s.activities[i].ID = serverID
		}
	}
}
