package app

// Options configures the controller facade.
type Options struct {
	// ConfigPath points at the optional daemon config file. Only
	// StartDaemon reads it; client calls go over the socket and carry
	// no config of their own.
	ConfigPath string
}

// App bundles the workshop operations shared by the CLI and the TUI.
// Every daemon-side call runs through withClient; StartDaemon is the
// one operation that executes in-process instead.
type App struct {
	cfgPath string
}

// New returns a facade over the daemon control API.
func New(opts Options) *App {
	return &App{cfgPath: opts.ConfigPath}
}

// ConfigPath reports which config file StartDaemon will load.
func (a *App) ConfigPath() string {
	return a.cfgPath
}
