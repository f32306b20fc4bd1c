package model

// Item is a registered piece of physical inventory.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"inventory_name"`
	Description string  `json:"description"`
	Photo       *string `json:"photo"`
}

// HasPhoto reports whether a photo reference is set.
func (i Item) HasPhoto() bool {
	return i.Photo != nil && *i.Photo != ""
}

// SearchResult is the projection returned by a search. Photo is omitted from
// the JSON entirely unless the caller asked for it.
type SearchResult struct {
	ID          int64    `json:"id"`
	Name        string   `json:"inventory_name"`
	Description string   `json:"description"`
	Photo       **string `json:"photo,omitempty"`
}

// Search projects an item for a search response. With includePhoto the photo
// key is always present (null when no photo is set); without it the key is
// dropped even if the item has a photo.
func (i Item) Search(includePhoto bool) SearchResult {
	res := SearchResult{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
	}
	if includePhoto {
		photo := i.Photo
		res.Photo = &photo
	}
	return res
}
