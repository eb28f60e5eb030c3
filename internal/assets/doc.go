// Package assets provides the render host page and its stylesheets.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in host)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css     # host page style (e.g., default.css)
//	└── templates/
//	    └── {name}.html    # host page template (e.g., host.html)
//
// A host template must contain the mount elements the renderer writes to
// (see RequiredMounts) and a {{.Style}} placeholder for the stylesheet.
//
// # Security
//
// Asset names are validated to prevent path traversal.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
