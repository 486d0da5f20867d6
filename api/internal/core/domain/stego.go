package domain

// ==============================================================================
// Result records returned by the four core operations.
// Timings are wall-clock seconds and exist for display only.
// ==============================================================================

type EncryptionResult struct {
	EncryptedDNA   string  `json:"encrypted_dna"`
	OriginalLength int     `json:"original_length"`
	BinaryLength   int     `json:"binary_length"`
	DNALength      int     `json:"dna_length"`
	EncryptionTime float64 `json:"encryption_time"`
	UsedCipher     bool    `json:"used_cipher"`
}

type DecryptionResult struct {
	DecryptedText  string  `json:"decrypted_text"`
	DecryptionTime float64 `json:"decryption_time"`
}

// ImageDimensions mirrors the (height, width, channels) shape of the raster.
type ImageDimensions struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Channels int `json:"channels"`
}

type EmbeddingResult struct {
	PayloadSize   int             `json:"payload_size"`
	BinarySize    int             `json:"binary_size"`
	EmbeddingTime float64         `json:"embedding_time"`
	ImageSize     ImageDimensions `json:"image_size"`
}

type ExtractionResult struct {
	ExtractedText  string  `json:"extracted_data"`
	ExtractionTime float64 `json:"extraction_time"`
	BinaryLength   int     `json:"binary_length"`
	MarkerFound    bool    `json:"marker_found"`
}
