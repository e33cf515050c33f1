package editor

// TokenLocation is where the handyman currently rests.
type TokenLocation string

const (
	TokenToolbar TokenLocation = "toolbar"
	TokenHome    TokenLocation = "home"
	TokenSurface TokenLocation = "surface"
)
