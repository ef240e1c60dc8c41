package session

import "context"

// View names a navigation target.
type View string

const (
	ViewLogin     View = "/login"
	ViewDashboard View = "/dashboard"
)

// Navigator receives navigation signals from the store.
type Navigator interface {
	Navigate(View)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(View)

// Navigate calls f(v).
func (f NavigatorFunc) Navigate(v View) { f(v) }

type nopNavigator struct{}

func (nopNavigator) Navigate(View) {}

type navigatorKey struct{}

// ContextWithNavigator routes navigation signals raised while serving ctx to
// nav instead of the store's default navigator. The console uses it to turn
// a signal into the redirect of the current request.
func ContextWithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, navigatorKey{}, nav)
}

func navigatorFromContext(ctx context.Context) (Navigator, bool) {
	nav, ok := ctx.Value(navigatorKey{}).(Navigator)
	return nav, ok && nav != nil
}
