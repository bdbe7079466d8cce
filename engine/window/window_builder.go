package window

// WindowBuilderOption is a functional option for configuring a Window.
type WindowBuilderOption func(*engineWindow)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial framebuffer size. The size is clamped to the size limits.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}

// WithSizeLimits sets the minimum and maximum window size. Non-positive values keep the default.
//
// Parameters:
//   - minWidth, minHeight: the smallest size in pixels
//   - maxWidth, maxHeight: the largest size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		if minWidth > 0 {
			w.minWidth = minWidth
		}
		if minHeight > 0 {
			w.minHeight = minHeight
		}
		if maxWidth > 0 {
			w.maxWidth = maxWidth
		}
		if maxHeight > 0 {
			w.maxHeight = maxHeight
		}
	}
}

// WithResizable sets whether the user can resize the window.
//
// Parameters:
//   - resizable: false fixes the window at its initial size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizable = resizable
	}
}
