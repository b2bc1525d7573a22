package whisperx

// Config mirrors transcription.whisperx.
type Config struct {
	// Model defaults to DefaultModel.
	Model string
	// Language is an ISO code; "auto" or empty lets WhisperX detect it.
	Language    string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote".
	VADMethod string
}

const (
	DefaultModel      = "large-v3"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"
	// UVXCommand launches WhisperX without a managed virtualenv.
	UVXCommand = "uvx"
)

const (
	pypiIndexURL = "https://pypi.org/simple"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
)
