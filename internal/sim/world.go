package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"drop-bears/server/internal/entity"
	"drop-bears/server/internal/projectile"
	"drop-bears/server/internal/terrain"
	"drop-bears/server/logging"
	loglifecycle "drop-bears/server/logging/lifecycle"
	logsimulation "drop-bears/server/logging/simulation"
	"drop-bears/server/weapons/catalog"
)

// Config tunes the world aggregate. Zero fields get defaults from
// Normalized; the physics and projectile sub-configs normalize
// themselves.
type Config struct {
	Seed int64

	// MaxDt clamps a tick's delta time so a stalled host cannot tunnel
	// characters through terrain.
	MaxDt float64

	// WalkStep is how far one move command carries a koala, in px.
	WalkStep float64
	// JumpSpeed is the upward launch speed of a jump, in px/s.
	JumpSpeed float64
	// MuzzleOffset is how far from the shooter's center a projectile
	// spawns, along the aim direction.
	MuzzleOffset float64
	// SpawnProtection is how long a freshly placed koala ignores
	// gravity, in seconds.
	SpawnProtection float64
	// SpawnSeparation is the minimum distance between chosen spawn
	// points, in px.
	SpawnSeparation float64
	// WindMax bounds the absolute wind value rolled each turn.
	WindMax float64
	// TimerMin and TimerMax bound the player's grenade timer selection.
	TimerMin float64
	TimerMax float64
	// SalvoSpread is the horizontal spacing between salvo drop columns.
	SalvoSpread float64
	// SalvoDropY is the Y coordinate salvo projectiles spawn at.
	SalvoDropY float64

	Physics     entity.Config
	Projectiles projectile.Config
}

func (c Config) Normalized() Config {
	if c.MaxDt <= 0 {
		c.MaxDt = 0.05
	}
	if c.WalkStep <= 0 {
		c.WalkStep = 2
	}
	if c.JumpSpeed <= 0 {
		c.JumpSpeed = 250
	}
	if c.MuzzleOffset <= 0 {
		c.MuzzleOffset = 25
	}
	if c.SpawnProtection <= 0 {
		c.SpawnProtection = 0.5
	}
	if c.SpawnSeparation <= 0 {
		c.SpawnSeparation = 120
	}
	if c.WindMax <= 0 {
		c.WindMax = 120
	}
	if c.TimerMin <= 0 {
		c.TimerMin = 1
	}
	if c.TimerMax <= 0 {
		c.TimerMax = 5
	}
	if c.SalvoSpread <= 0 {
		c.SalvoSpread = 30
	}
	if c.SalvoDropY == 0 {
		c.SalvoDropY = -40
	}
	return c
}

// TickResult aggregates everything one tick did to the world. The hub
// turns it into broadcast deltas.
type TickResult struct {
	Tick        uint64
	Detonations []projectile.Detonation
	RopePulls   []projectile.RopePull
	Duds        []uint64
	Removed     []uint64
	FallDamage  []entity.FallDamageEvent
	Drowned     []string
	Carves      []terrain.Carve
}

// World owns the terrain field, the character roster and the projectile
// set, and advances them all with a single Step call per tick.
// Projectiles resolve before characters, so a koala standing on ground
// that a detonation removes starts falling the same tick.
type World struct {
	cfg         Config
	field       *terrain.Field
	physics     *entity.Physics
	projectiles *projectile.Simulation
	scheduler   *Scheduler
	catalog     *catalog.Resolver
	publisher   logging.Publisher
	rng         *rand.Rand

	koalas []*entity.Koala
	byID   map[string]*entity.Koala
	timers map[string]float64

	wind float64
	tick uint64
}

func NewWorld(field *terrain.Field, cat *catalog.Resolver, cfg Config, publisher logging.Publisher) *World {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	cfg = cfg.Normalized()
	cfg.Physics.WorldWidth = float64(field.Width())
	cfg.Physics.WorldHeight = float64(field.Height())
	cfg.Projectiles.WorldWidth = float64(field.Width())
	cfg.Projectiles.WorldHeight = float64(field.Height())

	rng := rand.New(rand.NewSource(cfg.Seed))
	// Independent stream for dud rolls so spawn shuffling does not
	// perturb weapon outcomes.
	dudRng := rand.New(rand.NewSource(int64(uint64(cfg.Seed) ^ 0x9e3779b97f4a7c15)))

	return &World{
		cfg:         cfg,
		field:       field,
		physics:     entity.NewPhysics(field, cfg.Physics, publisher),
		projectiles: projectile.NewSimulation(field, cfg.Projectiles, dudRng, publisher),
		scheduler:   NewScheduler(),
		catalog:     cat,
		publisher:   publisher,
		rng:         rng,
		byID:        make(map[string]*entity.Koala),
		timers:      make(map[string]float64),
	}
}

// Field exposes the terrain for queries; callers must not carve it
// directly during a tick.
func (w *World) Field() *terrain.Field { return w.field }

// Koalas returns the roster in join order.
func (w *World) Koalas() []*entity.Koala { return w.koalas }

// Koala looks up one roster member by ID.
func (w *World) Koala(id string) (*entity.Koala, bool) {
	k, ok := w.byID[id]
	return k, ok
}

// Projectiles returns the live projectile set.
func (w *World) Projectiles() []*projectile.Projectile { return w.projectiles.Active() }

// Wind returns the current wind value.
func (w *World) Wind() float64 { return w.wind }

// Tick returns the last completed tick number.
func (w *World) Tick() uint64 { return w.tick }

// Scheduler exposes the simulation-time scheduler for turn machinery
// layered on top of the world.
func (w *World) Scheduler() *Scheduler { return w.scheduler }

// AddKoala places a new koala on a free spawn point. Spawn points come
// from the terrain surface scan; candidates too close to an existing
// koala are rejected.
func (w *World) AddKoala(id, team string) (*entity.Koala, error) {
	if _, exists := w.byID[id]; exists {
		return nil, fmt.Errorf("koala %q already placed", id)
	}
	points := w.field.SpawnPoints()
	if len(points) == 0 {
		return nil, fmt.Errorf("no spawn points on terrain")
	}
	w.rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})

	feet, ok := w.pickSpawn(points)
	if !ok {
		// Crowded map: fall back to the least constrained candidate.
		feet = points[0]
	}

	k := entity.NewKoala(id, feet)
	k.Team = team
	k.SpawnTimer = w.cfg.SpawnProtection
	w.koalas = append(w.koalas, k)
	w.byID[id] = k

	loglifecycle.KoalaSpawned(context.Background(), w.publisher, w.tick,
		logging.EntityRef{ID: id, Kind: logging.EntityKindKoala},
		loglifecycle.KoalaSpawnedPayload{X: feet.X(), Y: feet.Y()})
	return k, nil
}

func (w *World) pickSpawn(points []mgl64.Vec2) (mgl64.Vec2, bool) {
	for _, pt := range points {
		clear := true
		for _, k := range w.koalas {
			feet := mgl64.Vec2{k.Pos.X(), k.FeetY()}
			if feet.Sub(pt).Len() < w.cfg.SpawnSeparation {
				clear = false
				break
			}
		}
		if clear {
			return pt, true
		}
	}
	return mgl64.Vec2{}, false
}

// RollWind rerolls the wind from the world's seeded stream. Call it at
// turn boundaries.
func (w *World) RollWind() float64 {
	w.wind = (w.rng.Float64()*2 - 1) * w.cfg.WindMax
	logsimulation.WindChanged(context.Background(), w.publisher, w.tick,
		logsimulation.WindChangedPayload{Wind: w.wind})
	return w.wind
}

// SetWind pins the wind to an explicit value.
func (w *World) SetWind(v float64) { w.wind = v }

// Step advances the world one tick. dt is clamped to MaxDt. Order is
// fixed: scheduled tasks, player commands, projectiles, characters.
func (w *World) Step(dt float64, commands []Command) TickResult {
	if dt > w.cfg.MaxDt {
		dt = w.cfg.MaxDt
	}
	w.tick++

	w.scheduler.Fire(w.tick)

	for _, cmd := range commands {
		w.applyCommand(cmd)
	}

	projOut := w.projectiles.Step(w.tick, dt, w.wind, w.koalas)
	physOut := w.physics.Step(w.tick, dt, w.koalas)

	return TickResult{
		Tick:        w.tick,
		Detonations: projOut.Detonations,
		RopePulls:   projOut.RopePulls,
		Duds:        projOut.Duds,
		Removed:     projOut.Removed,
		FallDamage:  physOut.FallDamage,
		Drowned:     physOut.Drowned,
		Carves:      w.field.DrainCarves(),
	}
}

func (w *World) applyCommand(cmd Command) {
	k, ok := w.byID[cmd.Actor]
	if !ok || !k.Alive {
		return
	}
	switch cmd.Kind {
	case CommandMove:
		w.applyMove(k, cmd.Dir)
	case CommandJump:
		w.applyJump(k)
	case CommandFire:
		w.applyFire(k, cmd)
	case CommandSetTimer:
		w.timers[cmd.Actor] = clampTimer(cmd.Timer, w.cfg.TimerMin, w.cfg.TimerMax)
	}
}

func (w *World) applyMove(k *entity.Koala, dir float64) {
	if !k.OnGround {
		return
	}
	if dir > 0 {
		dir = 1
	} else if dir < 0 {
		dir = -1
	} else {
		return
	}
	feet, ok := w.physics.CanWalkUp(k, dir*w.cfg.WalkStep)
	if !ok {
		return
	}
	k.SetFeet(feet)
}

func (w *World) applyJump(k *entity.Koala) {
	if !k.OnGround || k.Jumping {
		return
	}
	k.Vel[1] = -w.cfg.JumpSpeed
	k.OnGround = false
	k.Jumping = true
}

func (w *World) applyFire(k *entity.Koala, cmd Command) {
	profile, ok := w.catalog.Resolve(cmd.Weapon)
	if !ok {
		return
	}
	if profile.SalvoCount > 1 {
		w.scheduleSalvo(k, profile, cmd.Aim)
		return
	}
	dir := cmd.Aim
	if dir.Len() == 0 {
		dir = mgl64.Vec2{1, 0}
	} else {
		dir = dir.Normalize()
	}
	muzzle := k.Pos.Add(dir.Mul(w.cfg.MuzzleOffset))
	w.projectiles.Fire(k.ID, profile, muzzle, dir, cmd.Power, w.timers[k.ID])
}

// scheduleSalvo stages SalvoCount vertical drops above the target X,
// staggered on the scheduler so the shells arrive as a line, not a
// clump.
func (w *World) scheduleSalvo(k *entity.Koala, profile catalog.WeaponProfile, target mgl64.Vec2) {
	spacing := uint64(profile.SalvoSpacingTicks)
	if spacing == 0 {
		spacing = 1
	}
	shooter := k.ID
	for i := 0; i < profile.SalvoCount; i++ {
		column := target.X() + (float64(i)-float64(profile.SalvoCount-1)/2)*w.cfg.SalvoSpread
		drop := mgl64.Vec2{column, w.cfg.SalvoDropY}
		w.scheduler.After(w.tick, uint64(i)*spacing, func(uint64) {
			w.projectiles.Spawn(shooter, profile, drop, mgl64.Vec2{0, profile.Speed}, 0)
		})
	}
	logsimulation.SalvoScheduled(context.Background(), w.publisher, w.tick,
		logging.EntityRef{ID: shooter, Kind: logging.EntityKindKoala},
		logsimulation.SalvoScheduledPayload{Weapon: profile.ID, Count: profile.SalvoCount})
}

// TimerSelection returns the actor's current timer choice, or the
// catalog default when none was set.
func (w *World) TimerSelection(actor string) float64 {
	return w.timers[actor]
}

func clampTimer(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
