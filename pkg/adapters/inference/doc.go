// Package inference provides ports.Inferencer implementations: Cloudflare
// Workers AI over REST, Google Gemini through the genai SDK, and a
// deterministic mock for development and tests.
package inference
