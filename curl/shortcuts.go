package curl

// Get starts a GET builder with DefaultSettings. The other shortcuts do the
// same for their method.
func Get(url string) *Builder     { return New(url).Method("GET") }
func Post(url string) *Builder    { return New(url).Method("POST") }
func Put(url string) *Builder     { return New(url).Method("PUT") }
func Patch(url string) *Builder   { return New(url).Method("PATCH") }
func Delete(url string) *Builder  { return New(url).Method("DELETE") }
func Head(url string) *Builder    { return New(url).Method("HEAD") }
func Options(url string) *Builder { return New(url).Method("OPTIONS") }
