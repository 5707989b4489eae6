// Package livekit mints LiveKit room access tokens.
//
// # Overview
//
// LiveKit access tokens are HS256 JWTs carrying a video grant. The issuer
// signs them locally with the project API secret; no LiveKit server round
// trip is involved.
//
// # Token Shape
//
//	{
//	  "iss": "<api key>",
//	  "sub": "<participant identity>",
//	  "name": "<participant identity>",
//	  "nbf": ...,
//	  "exp": ...,
//	  "video": {
//	    "room": "<room name>",
//	    "roomJoin": true,
//	    "canPublish": true,
//	    "canSubscribe": true
//	  }
//	}
//
// # Usage
//
//	issuer, err := livekit.New(apiKey, apiSecret, url)
//	token, err := issuer.IssueToken("room-1", "ada", livekit.DefaultTTL)
//
// New returns ErrNotConfigured when any credential is missing; the server
// treats that as a fatal startup error.
package livekit
