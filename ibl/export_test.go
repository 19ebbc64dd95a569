package ibl

// these functions are only exported when running tests

var CubeMapDirection = cubeMapDirection
var SampleCubeMap = sampleCubeMap
var SampleSphericalMap = sampleSphericalMap
var HammersleySequence = generateHammersleySequence
var RoundUpKernelSize = roundUpKernelSize
