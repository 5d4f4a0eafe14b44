// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package collab declares the interfaces this module consumes from
// collaborators it does not own: the AR runtime, the remote build
// service, and the cryptographic hash function. None of these types are
// implemented here beyond a pure-Go hasher fallback for test
// environments — production wiring of the AR runtime and remote build
// service happens outside this module's scope.
package collab

import "context"

// Hasher produces a 32-byte digest. Production callers are expected to
// wire crypto/sha256 (see SHA256Hasher); the interface exists so the
// package validator and WAL can be exercised against a pure-Go fallback
// in environments where the platform's accelerated implementation isn't
// available.
type Hasher interface {
	Sum256(data []byte) [32]byte
}

// Triangle is one piece of mesh geometry supplied by the AR runtime,
// keyed to the coverage patch it belongs to.
type Triangle struct {
	PatchID string
	Vertices [3][3]float64
	Normal   [3]float64
	Area     float64
}

// FrameEvidence is the per-frame data the AR runtime hands to the
// coverage tracker and gate: a direction vector, geometry, and
// black-box photometric/motion scalars treated as opaque
// collaborator-supplied values.
type FrameEvidence struct {
	FrameIndex  int64
	Direction   [3]float64
	Triangles   []Triangle
	Sharpness   float64
	Overexposure  float64
	Underexposure float64
	ReprojRMSPx float64
	EdgeRMSPx   float64
}

// ARFrameSource is the external collaborator that produces per-frame
// evidence from the live AR session. This module only consumes its
// output through this well-typed interface; it never reaches into the
// camera pipeline itself.
type ARFrameSource interface {
	NextFrame(ctx context.Context) (FrameEvidence, error)
}

// RemoteBuildFailureKind is the closed failure set §6 requires for the
// remote build service.
type RemoteBuildFailureKind string

const (
	FailureAPINotConfigured RemoteBuildFailureKind = "ApiNotConfigured"
	FailureNetworkTimeout   RemoteBuildFailureKind = "NetworkTimeout"
	FailureUploadFailed     RemoteBuildFailureKind = "UploadFailed"
	FailureDownloadFailed   RemoteBuildFailureKind = "DownloadFailed"
	FailureAPIError         RemoteBuildFailureKind = "ApiError"
	FailureInputInvalid     RemoteBuildFailureKind = "InputInvalid"
	FailureUnknown          RemoteBuildFailureKind = "UnknownError"
)

// RemoteBuildError wraps a closed-set failure kind with a human-readable
// detail, matching the rest of this module's typed-kind error shape.
type RemoteBuildError struct {
	Kind   RemoteBuildFailureKind
	Detail string
}

func (e *RemoteBuildError) Error() string {
	return "remote build: " + string(e.Kind) + ": " + e.Detail
}

// RemoteBuildResult is the payload a completed remote splat build
// returns.
type RemoteBuildResult struct {
	SplatBytes []byte
	Format     string
}

// RemoteBuildService is the asynchronous external splat-building
// collaborator. Every operation is suspend-point shaped and must surface
// failures through RemoteBuildError rather than a generic error.
type RemoteBuildService interface {
	Upload(ctx context.Context, sessionID string, data []byte) error
	Start(ctx context.Context, sessionID string) (jobID string, err error)
	Poll(ctx context.Context, jobID string) (done bool, err error)
	Download(ctx context.Context, jobID string) (RemoteBuildResult, error)
}
