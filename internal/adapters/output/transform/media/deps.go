package media

import (
	"strings"

	"file-utility-bot/internal/domain"
)

// CheckTools reports whether the external binaries the bot shells out to are installed
func CheckTools(ffmpegBinary string) []domain.ToolStatus {
	requirements := []domain.ToolStatus{
		{
			Name:        "FFmpeg",
			Command:     strings.TrimSpace(ffmpegBinary),
			Description: "Audio and video conversion, video to GIF, video compression",
		},
	}
	if requirements[0].Command == "" {
		requirements[0].Command = DefaultBinary
	}

	for i := range requirements {
		path, err := lookPath(requirements[i].Command)
		if err != nil {
			continue
		}
		requirements[i].Available = true
		requirements[i].Path = path
	}
	return requirements
}
