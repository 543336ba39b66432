package model

// Modality is the content type being verified
type Modality string

const (
	ModalityText       Modality = "text"
	ModalityImage      Modality = "image"
	ModalityTranscript Modality = "video-transcript"
)
