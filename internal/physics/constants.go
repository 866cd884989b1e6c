package physics

import "github.com/jakecoffman/cp/v2"

const (
	DefaultGravityY             = -9.81
	DefaultGravityModifier      = 1.0
	DefaultMinGroundNormalY     = 0.65
	DefaultMinMoveDistance      = 0.001
	DefaultShellRadius          = 0.01
	DefaultPushDecelerationRate = 0.25
	DefaultFixedDelta           = 0.02

	ContactBufferSize = 16
	MaxLayers         = 32
)

const (
	ParamMoveY    = "moveY"
	ParamGrounded = "grounded"
)

var (
	Up             = cp.Vector{X: 0, Y: 1}
	DefaultGravity = cp.Vector{X: 0, Y: DefaultGravityY}
)
