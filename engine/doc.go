// SPDX-License-Identifier: EPL-2.0

// Package engine ties decoding, mixing and device output together behind
// opaque voice handles.
//
// An Engine is an explicit value; several may exist side by side, each with
// its own device.Driver:
//
//	eng := engine.New(oto.New(log), engine.Config{})
//	if err := eng.Init(); err != nil {
//	    return err // wraps engine.ErrDevice
//	}
//	defer eng.Shutdown()
//
//	h, err := eng.Load("music.ogg")
//	if err != nil {
//	    return err // wraps engine.ErrDecode
//	}
//	_ = eng.SetLooping(h, true)
//	_ = eng.Play(h)
//
//	_ = eng.PlayOneShot("click.wav")
//
// Loaded files are converted to the engine's sample rate and channel count.
// Formats that cannot seek are decoded in full first, and kept in the
// optional clip cache.
//
// A Handle packs a slot index with a generation counter. Release and
// Shutdown bump the generation, so an old handle fails with
// ErrInvalidHandle instead of reaching another voice. A slot is reused
// only after the mixer has retired the voice that held it and its source
// has been closed.
package engine
