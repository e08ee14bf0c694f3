package analysis

import (
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankGalleryDisplayOrder(t *testing.T) {
	photos := []GalleryPhoto{
		{Handle: "bath", Analysis: PhotoAnalysis{RoomType: RoomBathroom, SuggestedUse: UseGallery}},
		{Handle: "bed", Analysis: PhotoAnalysis{RoomType: RoomBedroom, SuggestedUse: UseGallery}},
		{Handle: "kitchen", Analysis: PhotoAnalysis{RoomType: RoomKitchen, SuggestedUse: UseGallery}},
		{Handle: "living", Analysis: PhotoAnalysis{RoomType: RoomLivingRoom, SuggestedUse: UseGallery}},
		{Handle: "front", Analysis: PhotoAnalysis{RoomType: RoomExterior, SuggestedUse: UseCoverPhoto}},
	}

	ranked := RankGallery(photos)

	handles := make([]string, len(ranked))
	orders := make([]int, len(ranked))
	for i, r := range ranked {
		handles[i] = r.Handle
		orders[i] = r.Order
	}
	assert.Equal(t, []string{"front", "living", "kitchen", "bed", "bath"}, handles)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, orders)
	assert.Equal(t, 4, ranked[0].OriginalIndex)
}

func TestRankGalleryTiesKeepInputOrder(t *testing.T) {
	photos := []GalleryPhoto{
		{Handle: "garage", Analysis: PhotoAnalysis{RoomType: RoomGarage}},
		{Handle: "bed-a", Analysis: PhotoAnalysis{RoomType: RoomBedroom}},
		{Handle: "yard", Analysis: PhotoAnalysis{RoomType: RoomExterior}},
		{Handle: "bed-b", Analysis: PhotoAnalysis{RoomType: RoomBedroom}},
		{Handle: "porch", Analysis: PhotoAnalysis{RoomType: RoomExterior}},
		{Handle: "office", Analysis: PhotoAnalysis{RoomType: RoomOffice}},
	}

	ranked := RankGallery(photos)

	got := make([]string, len(ranked))
	for i, r := range ranked {
		got[i] = r.Handle
	}
	assert.Equal(t, []string{"yard", "porch", "bed-a", "bed-b", "garage", "office"}, got)
}

func TestRankGalleryIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	uses := []SuggestedUse{UseCoverPhoto, UseGallery, UseSkip}

	for n := 0; n < 40; n++ {
		photos := make([]GalleryPhoto, n)
		for i := range photos {
			photos[i] = GalleryPhoto{
				Handle: "h" + strconv.Itoa(rng.Intn(5)),
				Analysis: PhotoAnalysis{
					RoomType:     RoomTypes[rng.Intn(len(RoomTypes))],
					SuggestedUse: uses[rng.Intn(len(uses))],
				},
			}
		}

		ranked := RankGallery(photos)
		require.Len(t, ranked, n)

		in := make([]string, n)
		out := make([]string, n)
		seenIndex := make(map[int]bool, n)
		for i := range photos {
			in[i] = photos[i].Handle
			out[i] = ranked[i].Handle
			require.Equal(t, i, ranked[i].Order)
			require.False(t, seenIndex[ranked[i].OriginalIndex])
			seenIndex[ranked[i].OriginalIndex] = true
			require.Equal(t, photos[ranked[i].OriginalIndex].Handle, ranked[i].Handle)
		}
		sort.Strings(in)
		sort.Strings(out)
		require.Equal(t, in, out)
	}
}
