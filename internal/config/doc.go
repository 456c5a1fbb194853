// Package config loads the toolbox configuration.
//
// Settings come from, in increasing priority: built-in defaults, an
// optional TOML file (toolbox.toml), and TOOLBOX_ environment variables.
// Nested keys map to variables with "." replaced by "_", so pool.workers is
// read from TOOLBOX_POOL_WORKERS.
//
//	cfg, err := config.Load("toolbox.toml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Pool.Workers)
package config
