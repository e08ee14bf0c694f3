package analysis

import (
	"cmp"
	"slices"
)

// GalleryPhoto pairs a stored photo with its classification.
type GalleryPhoto struct {
	Handle   string
	Analysis PhotoAnalysis
}

// RankedPhoto is a photo in final display position.
type RankedPhoto struct {
	Handle        string        `json:"handle"`
	Analysis      PhotoAnalysis `json:"analysis"`
	Order         int           `json:"order"`
	OriginalIndex int           `json:"originalIndex"`
}

// RankGallery orders photos for display: cover first, then exterior, living
// room, kitchen, bedrooms, bathrooms and everything else. Ties keep input
// order. The result is a permutation of the input with Order set to 0..n-1.
func RankGallery(photos []GalleryPhoto) []RankedPhoto {
	ranked := make([]RankedPhoto, len(photos))
	for i, p := range photos {
		ranked[i] = RankedPhoto{Handle: p.Handle, Analysis: p.Analysis, OriginalIndex: i}
	}

	slices.SortStableFunc(ranked, func(a, b RankedPhoto) int {
		return cmp.Compare(gallerySortKey(a), gallerySortKey(b))
	})

	for i := range ranked {
		ranked[i].Order = i
	}
	return ranked
}

func gallerySortKey(p RankedPhoto) int {
	switch {
	case p.Analysis.SuggestedUse == UseCoverPhoto:
		return 0
	case p.Analysis.RoomType == RoomExterior:
		return 1
	case p.Analysis.RoomType == RoomLivingRoom:
		return 2
	case p.Analysis.RoomType == RoomKitchen:
		return 3
	case p.Analysis.RoomType == RoomBedroom:
		return 4 + p.OriginalIndex
	case p.Analysis.RoomType == RoomBathroom:
		return 100 + p.OriginalIndex
	default:
		return 500 + p.OriginalIndex
	}
}
