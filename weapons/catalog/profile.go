package catalog

// WeaponProfile is the designer-authored behavior record for one weapon.
// The simulation core only ever reads it; balance numbers live in
// config/weapons/definitions.json and are validated by the generated
// JSON schema.
type WeaponProfile struct {
	ID   string `json:"id" jsonschema:"title=Weapon id,pattern=^[a-z0-9\\-]+$,description=Designer facing identifier for the weapon"`
	Name string `json:"name,omitempty" jsonschema:"description=Display name shown by the client"`

	// Launch and flight.
	Speed             float64 `json:"speed" jsonschema:"description=Muzzle speed at full power in px/s"`
	GravityMultiplier float64 `json:"gravityMultiplier" jsonschema:"description=Scale applied to world gravity while in flight"`
	AffectedByWind    bool    `json:"affectedByWind,omitempty" jsonschema:"description=Whether wind accelerates the projectile horizontally"`

	// Bounce behavior.
	Bounces    bool    `json:"bounces,omitempty" jsonschema:"description=Reflect off terrain instead of detonating on contact"`
	Bounciness float64 `json:"bounciness,omitempty" jsonschema:"description=Velocity retained per bounce in [0,1]"`

	// Payload.
	Damage          float64 `json:"damage" jsonschema:"description=Damage at the blast center before falloff"`
	DirectDamage    float64 `json:"directDamage,omitempty" jsonschema:"description=Bonus damage on a confirmed direct hit; falls back to damage when zero"`
	ExplosionRadius float64 `json:"explosionRadius" jsonschema:"description=Crater and falloff radius in px; zero means no detonation payload"`
	Knockback       float64 `json:"knockback,omitempty" jsonschema:"description=Knockback impulse at the blast center before falloff"`

	// Timer fuse.
	UsesTimer          bool    `json:"usesTimer,omitempty" jsonschema:"description=Detonate after a timer instead of on contact"`
	TimerStartsOnThrow bool    `json:"timerStartsOnThrow,omitempty" jsonschema:"description=Start the timer at launch instead of on first terrain contact"`
	FixedTimer         float64 `json:"fixedTimer,omitempty" jsonschema:"description=Non-adjustable timer in seconds; overrides defaultTimer"`
	DefaultTimer       float64 `json:"defaultTimer,omitempty" jsonschema:"description=Player-adjustable timer default in seconds"`

	// Proximity fuse (mines).
	TriggeredByProximity bool    `json:"triggeredByProximity,omitempty" jsonschema:"description=Arm on settling and trigger when a non-shooter comes close"`
	TriggerDelay         float64 `json:"triggerDelay,omitempty" jsonschema:"description=Seconds between trigger and detonation"`
	DudChance            float64 `json:"dudChance,omitempty" jsonschema:"description=Probability in [0,1] that the mine is a dud"`

	// Settle fuse.
	ExplodesOnSettle        bool    `json:"explodesOnSettle,omitempty" jsonschema:"description=Detonate after sustained low speed"`
	SettleVelocityThreshold float64 `json:"settleVelocityThreshold,omitempty" jsonschema:"description=Speed in px/s below which the projectile counts as settling"`

	// Utility.
	Rope bool `json:"rope,omitempty" jsonschema:"description=Grapple: pulls the shooter toward the impact point and never detonates"`

	// Salvo weapons (airstrike) spawn several projectiles staggered
	// across ticks instead of one.
	SalvoCount        int `json:"salvoCount,omitempty" jsonschema:"description=Number of projectiles in a salvo; zero or one means a single shot"`
	SalvoSpacingTicks int `json:"salvoSpacingTicks,omitempty" jsonschema:"description=Ticks between salvo spawns"`
}

// ResolvedTimer returns the fuse duration: a fixed timer always wins
// over the player-adjustable one.
func (p WeaponProfile) ResolvedTimer(playerTimer float64) float64 {
	if p.FixedTimer > 0 {
		return p.FixedTimer
	}
	if playerTimer > 0 {
		return playerTimer
	}
	return p.DefaultTimer
}

// FileDefinitions is the canonical on-disk format of the weapon catalog:
// a JSON array of profiles. Shared with the schema generator.
type FileDefinitions []WeaponProfile
