// Package wav inspects RIFF/WAVE files.
//
// Probe walks the chunk list and reports the stream format together with the
// number of frames in the data chunk. It never decodes samples, so it works for
// any block-aligned format (PCM, IEEE float, WAVE_FORMAT_EXTENSIBLE).
package wav
