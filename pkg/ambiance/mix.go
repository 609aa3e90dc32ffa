package ambiance

// MixFlags are the user mute and solo switches of one layer.
type MixFlags struct {
	Mute bool
	Solo bool
}

// ResolveMutes computes the effective mute state of every layer. A soloed
// layer is always heard; when any layer is soloed every other layer is
// silenced, otherwise a layer is silenced only by its own mute flag.
//
// The result is written into out, grown when needed, and returned.
func ResolveMutes(flags []MixFlags, out []bool) []bool {
	anySolo := false
	for _, f := range flags {
		if f.Solo {
			anySolo = true
			break
		}
	}
	if cap(out) < len(flags) {
		out = make([]bool, len(flags))
	}
	out = out[:len(flags)]
	for i, f := range flags {
		out[i] = !f.Solo && (f.Mute || anySolo)
	}
	return out
}
