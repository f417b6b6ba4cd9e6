package ai

// Duration and resolution rules per model. Both functions are total: unknown
// models pass through untouched.

var soraDurations = []int{4, 8, 12}

// ValidateDuration snaps or clamps a requested video length to what the model supports.
func ValidateDuration(model string, secs int) int {
	switch model {
	case "sora-2":
		// Nearest allowed value; on a tie the lower one wins.
		best := soraDurations[0]
		for _, d := range soraDurations[1:] {
			if abs(d-secs) < abs(best-secs) {
				best = d
			}
		}
		return best
	case "veo-3.1":
		switch {
		case secs <= 4:
			return 4
		case secs <= 6:
			return 6
		default:
			return 8
		}
	case "runway-gen3", "runway-gen2":
		return min(max(secs, 1), 60)
	}
	return secs
}

var dalle3Resolutions = map[string]bool{
	"1024x1024": true,
	"1792x1024": true,
	"1024x1792": true,
}

// ValidateResolution coerces unsupported image sizes to the model default.
func ValidateResolution(model, res string) string {
	if model == "dall-e-3" && !dalle3Resolutions[res] {
		return "1024x1024"
	}
	return res
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
