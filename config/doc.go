// Package config loads the recall configuration file.
//
// The file is YAML with one section per subsystem:
//
//	ai:
//	  embedding_host: http://localhost:11434/v1
//	  embedding_model: all-minilm
//	  dimension: 384
//	embedding:
//	  cache_size: 10000
//	  inference_timeout: 30s
//	search:
//	  limit: 10
//	  threshold: 0.3
//	  exact_match_boost: 0.2
//	database:
//	  path: ~/.recall/db
//
// Keys missing from the file keep their default values.
package config
