package models

// PosterKind selects which tier of the fallback chain produced a poster.
type PosterKind int

const (
	PosterNeedsUpload PosterKind = iota
	PosterRemote
	PosterLocal
)

func (k PosterKind) String() string {
	switch k {
	case PosterRemote:
		return "remote"
	case PosterLocal:
		return "local"
	default:
		return "needs_upload"
	}
}

// PosterResolution is the outcome of resolving a poster for metadata.
// Ref is the remote URL or the local reference path; empty for NeedsUpload.
type PosterResolution struct {
	Kind PosterKind
	Ref  string
}

func RemotePoster(url string) PosterResolution {
	return PosterResolution{Kind: PosterRemote, Ref: url}
}

func LocalPoster(path string) PosterResolution {
	return PosterResolution{Kind: PosterLocal, Ref: path}
}

func NeedsUpload() PosterResolution {
	return PosterResolution{Kind: PosterNeedsUpload}
}

// PosterDelivery is the outcome of resolving a poster for direct retrieval.
type PosterDelivery struct {
	Kind        PosterKind
	Location    string // redirect target for PosterRemote
	Image       []byte // bytes for PosterLocal
	ContentType string
}

const PosterContentType = "image/jpeg"
