package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/race-engine/schedule"
	"github.com/radieske/turtle-race-platform/internal/race-engine/simulator"
	"github.com/radieske/turtle-race-platform/internal/race-scheduler/repo"
	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

type memRepo struct {
	mu     sync.Mutex
	races  map[string]repo.Race
	frames map[string][][]float64
}

func newMemRepo() *memRepo {
	return &memRepo{races: map[string]repo.Race{}, frames: map[string][][]float64{}}
}

func (m *memRepo) CreateRaces(_ context.Context, races []repo.Race) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range races {
		if _, ok := m.races[r.ID]; ok {
			continue
		}
		m.races[r.ID] = r
		n++
	}
	return n, nil
}

func (m *memRepo) ListUnfinished(_ context.Context, until time.Time) ([]repo.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repo.Race
	for _, r := range m.races {
		if r.Status != string(schedule.StatusFinished) && !r.StartTime.After(until) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memRepo) SaveSimulation(_ context.Context, id string, result []int, frames [][]float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.races[id]
	if r.Result != nil {
		return false, nil
	}
	r.Result = result
	m.races[id] = r
	m.frames[id] = frames
	return true, nil
}

func (m *memRepo) Transition(_ context.Context, id, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.races[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	m.races[id] = r
	return true, nil
}

func (m *memRepo) get(id string) repo.Race {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.races[id]
}

type fakeAnnouncer struct {
	fails int
	sent  []events.RaceFinished
}

func (f *fakeAnnouncer) PublishRaceFinished(_ context.Context, e events.RaceFinished) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("broker down")
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeAnnouncer) count(raceID string) int {
	n := 0
	for _, e := range f.sent {
		if e.RaceID == raceID {
			n++
		}
	}
	return n
}

type fakeBroadcaster struct{ updates []events.RaceUpdate }

func (f *fakeBroadcaster) PublishUpdate(_ context.Context, u events.RaceUpdate) error {
	f.updates = append(f.updates, u)
	return nil
}

type fakeFrames struct{ set map[string]int }

func (f *fakeFrames) SetFrames(_ context.Context, id string, frames [][]float64) error {
	f.set[id] = len(frames)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestScheduler(c *clock) (*Scheduler, *memRepo, *fakeAnnouncer, *fakeBroadcaster, *fakeFrames) {
	r := newMemRepo()
	a := &fakeAnnouncer{}
	b := &fakeBroadcaster{}
	f := &fakeFrames{set: map[string]int{}}
	n := 0
	s := &Scheduler{
		Log:          zap.NewNop(),
		Repo:         r,
		Announcer:    a,
		Broadcaster:  b,
		Frames:       f,
		Location:     time.UTC,
		FPS:          10,
		Now:          c.now,
		NewSeed:      func() string { n++; return "seed-" + string(rune('a'+n%26)) },
		RetryBackoff: time.Millisecond,
	}
	return s, r, a, b, f
}

func TestEnsureDaysCreatesSlotsOnce(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 19, 14, 10, 0, 0, time.UTC)}
	s, r, _, _, _ := newTestScheduler(c)
	s.DaysAhead = 1

	if err := s.EnsureDays(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.races) != 96 {
		t.Fatalf("races = %d, want 96", len(r.races))
	}
	before := r.get("20250119_1430").Seed

	if err := s.EnsureDays(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.races) != 96 {
		t.Fatalf("races after second call = %d", len(r.races))
	}
	if got := r.get("20250119_1430").Seed; got != before {
		t.Fatalf("seed overwritten: %q -> %q", before, got)
	}
}

func TestTickLifecycle(t *testing.T) {
	start := time.Date(2025, 1, 19, 14, 30, 0, 0, time.UTC)
	c := &clock{t: start.Add(-time.Minute)}
	s, r, a, b, f := newTestScheduler(c)
	ctx := context.Background()
	id := schedule.RaceID(start)

	if err := s.EnsureDays(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if got := r.get(id); got.Status != "WAITING" || got.Result != nil {
		t.Fatalf("before start: %+v", got)
	}

	// largada
	c.t = start.Add(time.Second)
	if err := s.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	race := r.get(id)
	if race.Status != "RUNNING" {
		t.Fatalf("status = %s, want RUNNING", race.Status)
	}
	want := simulator.ComputeFinishOrder(race.Seed)
	if len(race.Result) != len(want) {
		t.Fatalf("result = %v", race.Result)
	}
	for i := range want {
		if race.Result[i] != want[i] {
			t.Fatalf("result = %v, want %v", race.Result, want)
		}
	}
	if f.set[id] != 30*10 {
		t.Fatalf("cached frames = %d", f.set[id])
	}
	if a.count(id) != 0 {
		t.Fatalf("announced too early: %+v", a.sent)
	}

	// fim da corrida
	c.t = start.Add(schedule.RaceDuration)
	if err := s.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if got := r.get(id).Status; got != "FINISHED" {
		t.Fatalf("status = %s, want FINISHED", got)
	}
	if a.count(id) != 1 {
		t.Fatalf("announced = %+v", a.sent)
	}

	// tick seguinte não republica
	c.t = c.t.Add(time.Second)
	_ = s.Tick(ctx)
	if a.count(id) != 1 {
		t.Fatalf("announced twice: %d", a.count(id))
	}

	var statuses []string
	for _, u := range b.updates {
		if u.RaceID == id {
			statuses = append(statuses, u.Status)
		}
	}
	if len(statuses) != 2 || statuses[0] != "RUNNING" || statuses[1] != "FINISHED" {
		t.Fatalf("broadcast statuses = %v", statuses)
	}
	last := b.updates[len(b.updates)-1]
	if last.RaceID != id || len(last.Result) != len(want) {
		t.Fatalf("finished update without result: %+v", last)
	}
}

func TestTickCatchesUpMissedRace(t *testing.T) {
	start := time.Date(2025, 1, 19, 9, 0, 0, 0, time.UTC)
	c := &clock{t: start.Add(-time.Hour)}
	s, r, a, _, _ := newTestScheduler(c)
	ctx := context.Background()
	_ = s.EnsureDays(ctx)

	// serviço fora do ar durante toda a corrida
	c.t = start.Add(2 * time.Minute)
	if err := s.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if got := r.get(schedule.RaceID(start)); got.Status != "FINISHED" || got.Result == nil {
		t.Fatalf("race not caught up: %+v", got)
	}
	if a.count(schedule.RaceID(start)) != 1 {
		t.Fatal("expected race finished event")
	}
}

func TestAnnounceRetries(t *testing.T) {
	c := &clock{t: time.Now()}
	s, _, a, _, _ := newTestScheduler(c)
	a.fails = 2

	if err := s.announce(context.Background(), events.RaceFinished{RaceID: "x"}); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if len(a.sent) != 1 {
		t.Fatalf("sent = %d", len(a.sent))
	}

	a.fails = 5
	if err := s.announce(context.Background(), events.RaceFinished{RaceID: "y"}); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
}

func TestSimulationNotOverwritten(t *testing.T) {
	start := time.Date(2025, 1, 19, 14, 30, 0, 0, time.UTC)
	c := &clock{t: start.Add(-time.Minute)}
	s, r, _, _, _ := newTestScheduler(c)
	ctx := context.Background()
	_ = s.EnsureDays(ctx)
	id := schedule.RaceID(start)

	r.mu.Lock()
	race := r.races[id]
	race.Result = []int{7, 6, 5, 4, 3, 2, 1, 0}
	r.races[id] = race
	r.mu.Unlock()

	c.t = start.Add(time.Second)
	_ = s.Tick(ctx)
	got := r.get(id).Result
	if got[0] != 7 || got[7] != 0 {
		t.Fatalf("stored result overwritten: %v", got)
	}
}
