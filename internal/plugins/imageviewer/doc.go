// Package imageviewer is the image extension registered by default.
//
// It opens PNG and JPEG files into a view describing the image, offers a
// "Create thumbnail" popup action that runs as a background task, and
// persists the thumbnail size as the preference key thumbnail.size.
package imageviewer
