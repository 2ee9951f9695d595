// Copyright 2026 Commonwealth Scientific and Industrial Research Organisation (CSIRO) ABN 41 687 119 230
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	neturl "net/url"
)

// resolveURL resolves endpoint against profile's base URL, the same way a
// relative path is resolved against a deployment's active context: an
// absolute endpoint is used as-is, a relative one is merged with the
// profile's URL.
func resolveURL(endpoint string, profile *Profile) (*neturl.URL, error) {
	parsed, err := neturl.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint: %w", err)
	}

	if !parsed.IsAbs() {
		if profile == nil || profile.URL == "" {
			return nil, fmt.Errorf("endpoint %q is relative but no profile URL is set", endpoint)
		}
		base, err := neturl.Parse(profile.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse profile URL: %w", err)
		}
		parsed = base.ResolveReference(parsed)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid scheme: %s", parsed.Scheme)
	}
	return parsed, nil
}
