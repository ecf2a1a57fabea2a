// Package server receives OAuth2 authorization redirects for the auth session.
//
// # Router Infrastructure
//
// [BasicRouter] implements [Router] on [http.ServeMux] with per-route method filtering.
// [Middleware] added first runs outermost. [RouteHandler]s such as [RedirectHandler] declare
// their own paths and are attached with Mount.
//
// # Callback acceptors
//
// Both acceptors implement auth.CallbackRegistrar and deliver at most one redirect per registration.
//
// [CallbackServer] listens on the loopback address named by the redirect URI only while a
// registration is live. The first request to the callback path is handed to the session and
// answered with a page telling the user to return to the terminal; later requests get 400.
//
// [PasteAcceptor] is the manual variant for machines where the browser cannot reach the loopback
// listener (SSH sessions, containers): the user pastes the URL the browser was redirected to. An
// empty line or end of input cancels the flow.
//
// Neither acceptor validates the callback. State and code are checked by the session, which is
// the only party that knows the expected state.
package server
