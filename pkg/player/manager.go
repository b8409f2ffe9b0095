package player

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/ave/pkg/media"
	mediatypes "github.com/xaionaro-go/ave/pkg/media/types"
	"github.com/xaionaro-go/ave/pkg/pacer"
	"github.com/xaionaro-go/ave/pkg/player/types"
	"github.com/xaionaro-go/ave/pkg/xsync"
)

// Manager keeps the list of loaded media and the index of the current one.
// It is safe for concurrent use: a control goroutine may call it while
// another one runs the tick loop.
type Manager struct {
	locker  xsync.Mutex
	backend mediatypes.Backend
	config  types.Config

	players   []*Player
	current   int
	idlePacer *pacer.Pacer
}

func NewManager(
	backend mediatypes.Backend,
	opts ...types.Option,
) *Manager {
	cfg := types.Options(opts).Config()
	return &Manager{
		backend:   backend,
		config:    cfg,
		idlePacer: pacer.New(cfg.Clock, cfg.TargetFPS),
	}
}

func (m *Manager) Config() types.Config {
	return m.config
}

// Load opens the media at path, appends it to the list and makes it current.
// The previously current media is paused.
func (m *Manager) Load(
	ctx context.Context,
	path string,
) (*Player, error) {
	logger.Debugf(ctx, "Load(ctx, '%s')", path)
	defer logger.Debugf(ctx, "/Load(ctx, '%s')", path)

	session, err := media.Open(ctx, m.backend, path, m.config.Destination)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	p := NewPlayer(session, pacer.New(m.config.Clock, m.config.TargetFPS))

	m.locker.Do(ctx, func() {
		if len(m.players) > 0 {
			m.players[m.current].Pause(ctx)
		}
		m.players = append(m.players, p)
		m.current = len(m.players) - 1
	})
	logger.Infof(ctx, "loaded '%s' (%s)", path, p.DurationString())
	return p, nil
}

func (m *Manager) Len(ctx context.Context) int {
	return xsync.DoR1(ctx, &m.locker, func() int {
		return len(m.players)
	})
}

// Index returns the index of the current media, or -1 if nothing is loaded.
func (m *Manager) Index(ctx context.Context) int {
	return xsync.DoR1(ctx, &m.locker, func() int {
		if len(m.players) == 0 {
			return -1
		}
		return m.current
	})
}

func (m *Manager) Current(ctx context.Context) (*Player, error) {
	return xsync.DoR2(ctx, &m.locker, m.currentPlayer)
}

func (m *Manager) currentPlayer() (*Player, error) {
	if len(m.players) == 0 {
		return nil, ErrNoMedia
	}
	return m.players[m.current], nil
}

func (m *Manager) withCurrent(
	ctx context.Context,
	fn func(*Player) error,
) error {
	return xsync.DoR1(ctx, &m.locker, func() error {
		p, err := m.currentPlayer()
		if err != nil {
			return err
		}
		return fn(p)
	})
}

// Remove closes the current media and makes the previous one current.
func (m *Manager) Remove(ctx context.Context) error {
	p, err := xsync.DoR2(ctx, &m.locker, func() (*Player, error) {
		p, err := m.currentPlayer()
		if err != nil {
			return nil, err
		}
		m.players = append(m.players[:m.current], m.players[m.current+1:]...)
		m.current--
		if m.current < 0 {
			m.current = 0
		}
		return p, nil
	})
	if err != nil {
		return err
	}
	return p.Close(ctx)
}

// Next makes the following media current, wrapping around the list.
func (m *Manager) Next(ctx context.Context) error {
	return m.switchTo(ctx, 1)
}

// Prev makes the preceding media current, wrapping around the list.
func (m *Manager) Prev(ctx context.Context) error {
	return m.switchTo(ctx, -1)
}

func (m *Manager) switchTo(ctx context.Context, step int) error {
	return m.withCurrent(ctx, func(p *Player) error {
		p.Pause(ctx)
		m.current = floorMod(m.current+step, len(m.players))
		logger.Debugf(ctx, "switched to #%d: '%s'", m.current, m.players[m.current].Session().Path())
		return nil
	})
}

func floorMod(a, n int) int {
	return ((a % n) + n) % n
}

func (m *Manager) TogglePlay(ctx context.Context) error {
	return m.withCurrent(ctx, func(p *Player) error {
		return p.TogglePlay(ctx)
	})
}

func (m *Manager) Reset(ctx context.Context) error {
	return m.withCurrent(ctx, func(p *Player) error {
		return p.Reset(ctx)
	})
}

func (m *Manager) Seek(
	ctx context.Context,
	delta time.Duration,
	direction media.SeekDirection,
) error {
	return m.withCurrent(ctx, func(p *Player) error {
		return p.Seek(ctx, delta, direction)
	})
}

func (m *Manager) SetMarker(ctx context.Context, kind types.MarkerKind) error {
	return m.withCurrent(ctx, func(p *Player) error {
		return p.SetMarker(ctx, kind)
	})
}

// Tick ticks the current media. With nothing loaded it is an idle tick.
func (m *Manager) Tick(ctx context.Context) (types.TickResult, error) {
	return xsync.DoR2(ctx, &m.locker, func() (types.TickResult, error) {
		p, err := m.currentPlayer()
		if err != nil {
			m.idlePacer.MarkTick()
			return types.TickResult{Kind: types.TickIdle}, nil
		}
		return p.Tick(ctx)
	})
}

// NextWait is how long the loop should wait after the given tick result.
func (m *Manager) NextWait(ctx context.Context, result types.TickResult) time.Duration {
	_, wait := m.nextWait(ctx, result)
	return wait
}

func (m *Manager) nextWait(ctx context.Context, result types.TickResult) (*pacer.Pacer, time.Duration) {
	return xsync.DoR2(ctx, &m.locker, func() (*pacer.Pacer, time.Duration) {
		p, err := m.currentPlayer()
		if err != nil {
			return m.idlePacer, m.idlePacer.IdleWait()
		}
		return p.Pacer(), p.NextWait(result)
	})
}

// Pace waits until the result of the last Tick is due. The lock is not
// held while waiting.
func (m *Manager) Pace(ctx context.Context, result types.TickResult) error {
	pc, wait := m.nextWait(ctx, result)
	return pc.Wait(ctx, wait)
}

func (m *Manager) Status(ctx context.Context) (types.Status, error) {
	return xsync.DoR2(ctx, &m.locker, func() (types.Status, error) {
		p, err := m.currentPlayer()
		if err != nil {
			return types.Status{Index: -1}, err
		}
		return types.Status{
			Index:          m.current,
			Count:          len(m.players),
			Path:           p.Session().Path(),
			State:          p.State(),
			PositionString: p.PositionString(),
			DurationString: p.DurationString(),
			QueueLength:    p.Session().Queue().Len(),
		}, nil
	})
}

// Close closes all the loaded media.
func (m *Manager) Close(ctx context.Context) error {
	players := xsync.DoR1(ctx, &m.locker, func() []*Player {
		players := m.players
		m.players = nil
		m.current = 0
		return players
	})

	var result *multierror.Error
	for _, p := range players {
		if err := p.Close(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to close '%s': %w", p.Session().Path(), err))
		}
	}
	return result.ErrorOrNil()
}
