package decode

import (
	"os"
	"strconv"

	"github.com/dhowden/tag"
)

// Tags reads the container metadata of path. Files without tags (or unreadable ones) yield nil.
func Tags(path string) map[string]string {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return nil
	}

	return tagMap(metadata)
}

func tagMap(metadata tag.Metadata) map[string]string {
	out := map[string]string{}

	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}

	set("title", metadata.Title())
	set("artist", metadata.Artist())
	set("album", metadata.Album())
	set("album_artist", metadata.AlbumArtist())
	set("composer", metadata.Composer())
	set("genre", metadata.Genre())
	set("tag_format", string(metadata.Format()))
	set("file_type", string(metadata.FileType()))

	if year := metadata.Year(); year > 0 {
		out["year"] = strconv.Itoa(year)
	}

	if track, total := metadata.Track(); track > 0 {
		out["track"] = position(track, total)
	}

	if disc, total := metadata.Disc(); disc > 0 {
		out["disc"] = position(disc, total)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func position(index, total int) string {
	if total <= 0 {
		return strconv.Itoa(index)
	}

	return strconv.Itoa(index) + "/" + strconv.Itoa(total)
}
