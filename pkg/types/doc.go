// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data shared between the pipeline stages: the
// product record, the enriched state, rendered pages, configuration, and the
// error taxonomy every stage reports failures in.
package types
