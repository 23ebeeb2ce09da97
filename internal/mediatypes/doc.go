// Package mediatypes provides shared type definitions for media handling
// across the catalog.
//
// This package is a dependency-free foundation that can be imported by other
// packages without creating import cycles.
//
// # File Types
//
// Media server items are classified by the top-level part of their MIME type:
//
//	mediatypes.FileTypeFromMIME("audio/flac")        // FileTypeAudio
//	mediatypes.FileTypeFromMIME("video/x-matroska")  // FileTypeVideo
//	mediatypes.FileTypeFromMIME("image/jpeg")        // FileTypeUnknown
//
// # Supported Formats
//
// Only resources whose MIME type appears in SupportedMIMETypes are cataloged:
//
//	if mediatypes.IsSupportedMIME(protocolMIME) {
//	    // cache the item
//	}
//
// GetMimeType maps file extensions to MIME types for servers that report a
// generic type such as application/octet-stream.
package mediatypes
