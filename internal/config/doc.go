// Package config provides configuration parsing for kinet projects.
//
// The configuration is stored in kinet.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "demo",
//	  "port": 8080,
//	  "host": "localhost",
//	  "static": {
//	    "dir": "public",
//	    "prefix": "/static"
//	  },
//	  "assets": {
//	    "bucket": "demo-assets",
//	    "prefix": "kinet/",
//	    "region": "us-east-1"
//	  },
//	  "session": {
//	    "resumeWindow": "30s",
//	    "maxSessions": 10000
//	  },
//	  "client": "./dist/kinet.js",
//	  "metrics": true
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Address())
package config
