// Package auth implements the account authentication component for the
// talentdesk platform: registration with email OTP verification, password
// login issuing an access/refresh token pair, token refresh, password
// recovery, and authenticated profile mutations.
//
// Account lifecycle:
//   - Accounts are created unverified with a short-lived OTP; verifying the
//     OTP activates the account. Login is only possible for verified,
//     non-suspended accounts.
//   - Accounts carry an AccountStatus persisted via Bun. The
//     AccountStateMachine centralizes the transition graph (normal and
//     suspended) plus timestamp handling, so suspension and reinstatement
//     go through a single code path.
//
// Sessions:
//   - Each login stores the newly issued refresh token on the account,
//     overwriting the previous one. That single column is the whole
//     revocation mechanism: only the most recently issued refresh token
//     for an account can be exchanged for a new access token.
//
// Handlers follow a message/handler split: build a Message, hand it to the
// matching Handler, and collect results through the message's OnResponse
// callback. The fiber controller in http_controller.go maps handler errors
// to transport status codes.
package auth
