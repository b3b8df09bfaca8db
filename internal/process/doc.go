// Package process reaps browser process trees left behind by a render.
package process
