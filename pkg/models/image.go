package models

//go:generate easyjson -all image.go

// ImageInfo is one entry of the Picsum list endpoint.
// Identity is ID; the rest is immutable once received.
type ImageInfo struct {
	ID     string `json:"id"`
	Author string `json:"author,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	// Page on unsplash.com the photo came from.
	URL         string `json:"url,omitempty"`
	DownloadURL string `json:"download_url"`
}

// ImageInfoList is the JSON array returned by /v2/list.
type ImageInfoList []ImageInfo

// IDs returns the identifiers in list order.
func (l ImageInfoList) IDs() []string {
	out := make([]string, len(l))
	for i := range l {
		out[i] = l[i].ID
	}
	return out
}

// Find returns the entry with the given id.
func (l ImageInfoList) Find(id string) (ImageInfo, bool) {
	for i := range l {
		if l[i].ID == id {
			return l[i], true
		}
	}
	return ImageInfo{}, false
}
