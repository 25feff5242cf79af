// Package cache implements the content-addressed artifact cache used by build
// tools. Every request names a source file (its identity) and carries either
// caller-supplied content or a pointer to the file on disk; the content hash
// picks the artifact file and the path picks its folder:
//
//	<ProjectRoot>/<CacheDir>/<FolderName(path)>/<Hash(content)><ext>
//
// All revisions of one source file share a folder, so Clear drops them in one
// RemoveAll. Raw reads/writes go through Store (afero-backed, temp file +
// rename), which reports a missing file as an explicit absent result; the
// content loader turns that into MissingSourceFileError only for real sources.
package cache
