// Package builtins lists the names each language provides without a
// definition or import: keywords that parse as identifiers, primitive
// types, standard functions and well-known globals.
package builtins

import (
	"strings"

	"github.com/jward/treehugger/internal/lang"
)

type set map[string]struct{}

func newSet(words ...string) set {
	s := make(set)
	for _, w := range words {
		for _, f := range strings.Fields(w) {
			s[f] = struct{}{}
		}
	}
	return s
}

var registry = map[lang.Language]set{
	lang.Go: newSet(
		`bool byte complex64 complex128 error float32 float64 int int8 int16 int32 int64
		rune string uint uint8 uint16 uint32 uint64 uintptr any comparable`,
		`true false nil iota`,
		`append cap clear close complex copy delete imag len make max min new panic
		print println real recover`,
		`_`,
	),
	lang.Python: newSet(
		`True False None self cls __name__ __file__ __doc__ __all__ __init__ __main__`,
		`abs all any ascii bin bool breakpoint bytearray bytes callable chr classmethod
		compile complex delattr dict dir divmod enumerate eval exec filter float format
		frozenset getattr globals hasattr hash help hex id input int isinstance issubclass
		iter len list locals map max memoryview min next object oct open ord pow print
		property range repr reversed round set setattr slice sorted staticmethod str sum
		super tuple type vars zip __import__`,
		`BaseException Exception ArithmeticError AssertionError AttributeError EOFError
		ImportError ModuleNotFoundError IndexError KeyError KeyboardInterrupt LookupError
		MemoryError NameError NotImplementedError NotImplemented OSError OverflowError
		RecursionError RuntimeError StopIteration StopAsyncIteration SyntaxError SystemExit
		TypeError ValueError ZeroDivisionError FileNotFoundError PermissionError
		TimeoutError Warning DeprecationWarning UserWarning Ellipsis`,
	),
	lang.Rust: newSet(
		`bool char str i8 i16 i32 i64 i128 isize u8 u16 u32 u64 u128 usize f32 f64`,
		`Self self super crate std core alloc`,
		`Option Some None Result Ok Err Vec String Box Rc Arc RefCell Cell HashMap
		HashSet BTreeMap BTreeSet VecDeque`,
		`Clone Copy Debug Default Eq PartialEq Ord PartialOrd Hash Send Sync Sized
		Drop Fn FnMut FnOnce Iterator IntoIterator From Into AsRef AsMut ToString
		Display ToOwned`,
		`println print eprintln eprint format vec panic assert assert_eq assert_ne
		debug_assert debug_assert_eq unreachable unimplemented todo write writeln
		matches dbg include_str concat stringify cfg env line file column`,
		`derive test allow deny warn cfg_attr inline must_use`,
	),
	lang.JavaScript: ecma(),
	lang.TypeScript: newSet(
		ecmaWords,
		`string number boolean any unknown never void object bigint symbol
		Partial Required Readonly Record Pick Omit Exclude Extract NonNullable
		ReturnType Parameters InstanceType Awaited`,
	),
	lang.Java: newSet(
		`String Object Integer Long Double Float Boolean Character Byte Short Math
		System Exception RuntimeException Error Throwable IllegalArgumentException
		IllegalStateException NullPointerException Override Deprecated
		SuppressWarnings FunctionalInterface List Map Set ArrayList HashMap HashSet
		Optional Thread Runnable Iterable Comparable StringBuilder var`,
		`this super`,
	),
	lang.C: cNames(),
	lang.Cpp: newSet(
		cWords,
		`std cout cin cerr endl string vector map set unordered_map unordered_set
		unique_ptr shared_ptr make_unique make_shared move forward nullptr this`,
	),
	lang.CSharp: newSet(
		`System Console String Object Int32 Int64 Boolean Math Exception List
		Dictionary IEnumerable Task var nameof value this base`,
	),
	lang.PHP: newSet(
		`this self parent static true false null TRUE FALSE NULL`,
		`echo print isset unset empty count strlen strpos substr str_replace explode
		implode array_map array_filter array_merge array_keys array_values in_array
		json_encode json_decode sprintf printf var_dump print_r is_array is_string
		is_int intval strval`,
		`Exception InvalidArgumentException RuntimeException stdClass`,
	),
	lang.Bash: shNames(),
	lang.Zsh:  shNames(),
	lang.Swift: newSet(
		`Int Double Float Bool String Character Array Dictionary Set Optional Any
		AnyObject Void self Self super print debugPrint fatalError precondition
		assert true false nil`,
	),
	lang.Scala: newSet(
		`Int Long Double Float Boolean String Char Unit Any AnyRef Nothing Option
		Some None List Seq Map Set Vector println print this super true false null`,
	),
	lang.Lua: newSet(
		`print pairs ipairs type tostring tonumber require pcall xpcall error assert
		select next setmetatable getmetatable rawget rawset table string math io os
		coroutine self _G _VERSION`,
	),
}

const ecmaWords = `console window document globalThis undefined NaN Infinity this
	Object Array String Number Boolean Symbol BigInt Function Promise Map Set
	WeakMap WeakSet Date RegExp Error TypeError RangeError SyntaxError JSON Math
	Reflect Proxy Intl parseInt parseFloat isNaN isFinite setTimeout clearTimeout
	setInterval clearInterval require module exports arguments fetch`

func ecma() set { return newSet(ecmaWords) }

const cWords = `printf fprintf sprintf snprintf scanf puts gets fputs malloc calloc
	realloc free memcpy memset memmove strlen strcpy strncpy strcat strcmp strncmp
	exit abort assert NULL size_t ssize_t FILE stdin stdout stderr EOF errno
	int8_t int16_t int32_t int64_t uint8_t uint16_t uint32_t uint64_t bool true
	false main`

func cNames() set { return newSet(cWords) }

func shNames() set {
	return newSet(
		`echo printf read cd pwd exit return export local declare unset shift test
		source eval exec set trap wait true false`,
		`HOME PATH PWD USER SHELL IFS RANDOM LINENO PPID OLDPWD BASH_SOURCE FUNCNAME`,
		`0 1 2 3 4 5 6 7 8 9 @ * # ? $ ! -`,
	)
}

// IsBuiltin reports whether name is provided by language l without any
// definition or import.
func IsBuiltin(l lang.Language, name string) bool {
	s, ok := registry[l]
	if !ok {
		return false
	}
	_, ok = s[name]
	return ok
}
