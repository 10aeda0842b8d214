package ports

import "ruletree/domain/dataset"

// FrameReader loads a tabular file into a numeric frame. Implementations
// pick the parse strategy from the file extension.
type FrameReader interface {
	ReadFrame(path string) (*dataset.Frame, error)
}

// FrameWriter persists a frame, flag columns included
type FrameWriter interface {
	WriteCSV(frame *dataset.Frame, path string) error
}
