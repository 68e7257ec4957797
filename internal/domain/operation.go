package domain

// Operation names a transformation the dispatcher can invoke
type Operation string

const (
	OpConvertPNG    Operation = "convert_png"
	OpConvertJPG    Operation = "convert_jpg"
	OpImagesToPDF   Operation = "images_to_pdf"
	OpAudioMP3      Operation = "audio_mp3"
	OpAudioWAV      Operation = "audio_wav"
	OpVideoMP4      Operation = "video_mp4"
	OpVideoGIF      Operation = "video_gif"
	OpCompressImage Operation = "compress_image"
	OpCompressVideo Operation = "compress_video"
	OpCompressPDF   Operation = "compress_pdf"
	OpMergePDF      Operation = "merge_pdf"
	OpSplitPDF      Operation = "split_pdf"
	OpExtractText   Operation = "extract_text"
	OpCreateZip     Operation = "create_zip"
	OpExtractZip    Operation = "extract_zip"
)

func (o Operation) String() string {
	return string(o)
}
