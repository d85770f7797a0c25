// Package ytdlp implements fetch.Fetcher on top of github.com/lrstanley/go-ytdlp.
//
// The client builds one yt-dlp command per request, maps yt-dlp progress
// updates onto fetch.Progress values, and resolves the final artifact path once
// post-processing finishes. Pure helpers (progress translation, output
// resolution) are kept separate so tests run without the yt-dlp binary.
package ytdlp
