/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package version

import (
	"strconv"
	"time"
)

const (
	DevelopmentVersion = "dev"
)

// Set at build time via -ldflags "-X github.com/microsoft/jdwpwire/internal/version.ProductVersion=..."
var (
	ProductVersion = DevelopmentVersion
	CommitHash     = ""
	BuildTimestamp = ""
)

type VersionOutput struct {
	Version    string     `json:"version" yaml:"version"`
	CommitHash string     `json:"commitHash,omitempty" yaml:"commitHash,omitempty"`
	BuildTime  *time.Time `json:"buildTimestamp,omitempty" yaml:"buildTimestamp,omitempty"`
}

// Version returns the version information the binary was built with.
// BuildTimestamp may hold either unix seconds or an RFC 3339 time.
func Version() VersionOutput {
	retval := VersionOutput{
		Version:    ProductVersion,
		CommitHash: CommitHash,
	}
	if retval.Version == "" {
		retval.Version = DevelopmentVersion
	}

	if BuildTimestamp != "" {
		if seconds, err := strconv.ParseInt(BuildTimestamp, 10, 64); err == nil {
			buildTime := time.Unix(seconds, 0).UTC()
			retval.BuildTime = &buildTime
		} else if buildTime, timeErr := time.Parse(time.RFC3339, BuildTimestamp); timeErr == nil {
			retval.BuildTime = &buildTime
		}
	}

	return retval
}
