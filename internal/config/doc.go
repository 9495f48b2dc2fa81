// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package config loads the conancache YAML configuration:
//
//	cacheDir: /home/user/.conan/data
//	remotes:
//	  - name: conan-center
//	    url: https://center.conan.io
//	    verifySSL: true
//	remotesFile: remotes.txt
//	http:
//	  retries: 2
//	  maxConnsPerHost: 4
//	  requestsPerSecond: 0
//	  userAgent: conancache/1.0
//	sync:
//	  concurrency: 1
//	  inspectArchives: false
//	lock:
//	  versionConstraint: ">= 0.4"
package config
