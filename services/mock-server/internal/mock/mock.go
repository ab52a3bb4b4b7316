package mock

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stoik/launchwatch/internal/models"
)

var (
	providers = []string{"SpaceX", "Rocket Lab", "ULA", "Blue Origin", "Arianespace"}
	vehicles  = map[string]string{
		"SpaceX":      "Falcon 9",
		"Rocket Lab":  "Electron",
		"ULA":         "Vulcan",
		"Blue Origin": "New Glenn",
		"Arianespace": "Ariane 6",
	}
	pads = []models.Pad{
		{Name: "SLC-40", Location: models.Named{Name: "Cape Canaveral SFS, FL, USA"}},
		{Name: "LC-39A", Location: models.Named{Name: "Kennedy Space Center, FL, USA"}},
		{Name: "SLC-4E", Location: models.Named{Name: "Vandenberg SFB, CA, USA"}},
		{Name: "LC-1A", Location: models.Named{Name: "Rocket Lab LC-1, Mahia, NZ"}},
		{Name: "ELA-4", Location: models.Named{Name: "Guiana Space Centre, French Guiana"}},
	}
	missions = []string{"Starlink", "Transporter", "NROL", "Kuiper", "CRS", "Crew", "GPS III", "Galileo"}
)

// Store keeps the generated launch schedule and the mailboxes in memory
type Store struct {
	mu        sync.RWMutex
	launches  []models.Launch
	times     map[int64]time.Time
	nextID    int64
	mailboxes map[string][]models.InboundMessage
}

// NewStore creates a store with count launches spread over the next two days
func NewStore(count int, now time.Time) *Store {
	s := &Store{
		times:     make(map[int64]time.Time),
		nextID:    1000,
		mailboxes: make(map[string][]models.InboundMessage),
	}
	for i := 0; i < count; i++ {
		offset := time.Duration(30+rand.Intn(48*60)) * time.Minute
		s.addLaunch(now.Add(offset).Truncate(time.Minute))
	}
	return s
}

func (s *Store) addLaunch(at time.Time) {
	provider := providers[rand.Intn(len(providers))]
	id := s.nextID
	s.nextID++

	s.launches = append(s.launches, models.Launch{
		ID:       id,
		Name:     fmt.Sprintf("%s %d", missions[rand.Intn(len(missions))], 1+rand.Intn(40)),
		Provider: models.Named{Name: provider},
		Vehicle:  models.Named{Name: vehicles[provider]},
		Pad:      pads[rand.Intn(len(pads))],
	})
	s.times[id] = at
}

// Upcoming returns up to count launches that have not launched more than an
// hour ago, ordered by launch time
func (s *Store) Upcoming(count int, now time.Time) []models.Launch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Launch, 0, len(s.launches))
	for _, l := range s.launches {
		at := s.times[l.ID]
		if now.Sub(at) > time.Hour {
			continue
		}
		l.SortDate = json.RawMessage(strconv.Quote(strconv.FormatInt(at.Unix(), 10)))
		t0 := at.UTC().Format(time.RFC3339)
		l.T0 = &t0
		out = append(out, l)
	}

	sort.Slice(out, func(i, j int) bool {
		return s.times[out[i].ID].Before(s.times[out[j].ID])
	})
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out
}

// Delay moves a launch later (or earlier for a negative d)
func (s *Store) Delay(id int64, d time.Duration) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.times[id]
	if !ok {
		return time.Time{}, fmt.Errorf("launch %d not found", id)
	}
	at = at.Add(d)
	s.times[id] = at
	return at, nil
}

// Deliver appends an inbound message to a mailbox
func (s *Store) Deliver(mailbox string, msg models.InboundMessage) models.InboundMessage {
	if msg.MessageID == uuid.Nil {
		msg.MessageID = uuid.New()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mailboxes[mailbox] = append(s.mailboxes[mailbox], msg)
	return msg
}

// Latest returns the newest message in a mailbox, or nil when it is empty
func (s *Store) Latest(mailbox string) *models.InboundMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.InboundMessage
	for i := range s.mailboxes[mailbox] {
		m := s.mailboxes[mailbox][i]
		if latest == nil || m.ReceivedAt.After(latest.ReceivedAt) {
			latest = &m
		}
	}
	return latest
}
