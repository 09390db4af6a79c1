package model

// Image is a file found on Wikimedia Commons.
type Image struct {
	// Title is the file page title, e.g. "File:Example.jpg".
	Title string `json:"title,omitempty"`

	// URL is the direct URL of the original file.
	URL string `json:"url"`
}

// ImageSet holds the images found for an article, in search order.
type ImageSet struct {
	Images []Image `json:"images"`
}

// Empty reports whether no images were found.
func (s *ImageSet) Empty() bool {
	return s == nil || len(s.Images) == 0
}

// URLs returns the image URLs in order.
func (s *ImageSet) URLs() []string {
	if s == nil {
		return nil
	}
	urls := make([]string, len(s.Images))
	for i, img := range s.Images {
		urls[i] = img.URL
	}
	return urls
}
