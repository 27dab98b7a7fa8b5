package stage

// Health reports whether one workflow stage can currently do its job, for
// example whether slskd answers or ffmpeg is on PATH.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks the named stage ready.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks the named stage not ready, with detail explaining what is
// missing or unreachable.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
